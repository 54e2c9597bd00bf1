package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; gateway.url,
// gateway.token, and gateway.intents require a fresh connection and are
// deliberately excluded.
type ConfigDiff struct {
	GuildsChanged   bool
	GuildChanges    []GuildDiff
	LogLevelChanged bool
	NewLogLevel     LogLevel
	BitrateChanged  bool
	NewBitrateBps   int
}

// GuildDiff describes what changed for a single guild entry between two
// configs.
type GuildDiff struct {
	Name                   string
	AutoJoinChannelChanged bool
	Added                  bool
	Removed                bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Voice.BitrateBps != new.Voice.BitrateBps {
		d.BitrateChanged = true
		d.NewBitrateBps = new.Voice.BitrateBps
	}

	oldGuilds := make(map[string]*GuildConfig, len(old.Guilds))
	for i := range old.Guilds {
		oldGuilds[old.Guilds[i].Name] = &old.Guilds[i]
	}
	newGuilds := make(map[string]*GuildConfig, len(new.Guilds))
	for i := range new.Guilds {
		newGuilds[new.Guilds[i].Name] = &new.Guilds[i]
	}

	for name, oldGuild := range oldGuilds {
		newGuild, exists := newGuilds[name]
		if !exists {
			d.GuildChanges = append(d.GuildChanges, GuildDiff{Name: name, Removed: true})
			d.GuildsChanged = true
			continue
		}
		gd := diffGuild(name, oldGuild, newGuild)
		if gd.AutoJoinChannelChanged {
			d.GuildChanges = append(d.GuildChanges, gd)
			d.GuildsChanged = true
		}
	}

	for name := range newGuilds {
		if _, exists := oldGuilds[name]; !exists {
			d.GuildChanges = append(d.GuildChanges, GuildDiff{Name: name, Added: true})
			d.GuildsChanged = true
		}
	}

	return d
}

func diffGuild(name string, old, new *GuildConfig) GuildDiff {
	gd := GuildDiff{Name: name}
	if old.AutoJoinVoiceChannelID != new.AutoJoinVoiceChannelID {
		gd.AutoJoinChannelChanged = true
	}
	return gd
}
