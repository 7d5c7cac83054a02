package models

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Attachment is the transferable form of a File: the name carries the
// document category tag, content is base64.
type Attachment struct {
	Name     string `json:"name"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// EncodeAttachment tags and encodes f. A missing MIME type is sniffed
// from the content.
func EncodeAttachment(kind DocumentKind, f *File) Attachment {
	mime := f.MimeType
	if mime == "" {
		mime = mimetype.Detect(f.Content).String()
	}
	return Attachment{
		Name:     kind.Tag() + "_" + f.Name,
		FileName: f.Name,
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(f.Content),
	}
}

// Kind recovers the document kind from the tagged name. The longest
// matching tag wins since some tags share a prefix.
func (a Attachment) Kind() (DocumentKind, bool) {
	var best DocumentKind
	bestLen := 0
	for k, spec := range documentSpecs {
		if strings.HasPrefix(a.Name, spec.tag+"_") && len(spec.tag) > bestLen {
			best, bestLen = k, len(spec.tag)
		}
	}
	return best, bestLen > 0
}

// Decode turns the attachment back into a File.
func (a Attachment) Decode() (*File, error) {
	content, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.Name, err)
	}
	name := a.FileName
	if name == "" {
		name = a.Name
	}
	mime := a.MimeType
	if mime == "" {
		mime = mimetype.Detect(content).String()
	}
	return &File{Name: name, MimeType: mime, Content: content}, nil
}
