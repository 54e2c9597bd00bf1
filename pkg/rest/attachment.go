package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

// Attachment is one file to upload alongside a multipart REST request.
type Attachment struct {
	// Name is the multipart field name, conventionally "file" or
	// "file[0]", "file[1]", ... for multiple attachments.
	Name string

	// FileName is reported to the platform as the attachment's display
	// name.
	FileName string

	Reader io.Reader
}

// buildMultipart writes payload as a "payload_json" part and each
// attachment as a named "file" part (bytes, with file_name).
func buildMultipart(payload any, attachments []Attachment) (contentType string, body *bytes.Buffer, err error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if payload != nil {
		part, err := w.CreateFormField("payload_json")
		if err != nil {
			return "", nil, fmt.Errorf("rest: create payload_json part: %w", err)
		}
		if err := json.NewEncoder(part).Encode(payload); err != nil {
			return "", nil, fmt.Errorf("rest: encode payload_json: %w", err)
		}
	}

	for _, a := range attachments {
		part, err := w.CreateFormFile(a.Name, a.FileName)
		if err != nil {
			return "", nil, fmt.Errorf("rest: create attachment part %q: %w", a.Name, err)
		}
		if _, err := io.Copy(part, a.Reader); err != nil {
			return "", nil, fmt.Errorf("rest: write attachment %q: %w", a.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("rest: close multipart writer: %w", err)
	}
	return w.FormDataContentType(), buf, nil
}
