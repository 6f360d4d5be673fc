package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/nhle/vanta/internal/model"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	name string
	ref  model.FileRef
}

// Form is a multipart payload. Fields keep insertion order and may repeat.
type Form struct {
	fields []formField
	files  []formFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Add appends a text field. Repeated names produce repeated parts.
func (f *Form) Add(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFile appends a file part read from ref when the form is encoded.
func (f *Form) AddFile(name string, ref model.FileRef) *Form {
	f.files = append(f.files, formFile{name: name, ref: ref})
	return f
}

// Values returns every value recorded for a text field.
func (f *Form) Values(name string) []string {
	var out []string
	for _, fld := range f.fields {
		if fld.name == name {
			out = append(out, fld.value)
		}
	}
	return out
}

// HasFile reports whether a file part with the given name was added.
func (f *Form) HasFile(name string) bool {
	for _, ff := range f.files {
		if ff.name == name {
			return true
		}
	}
	return false
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("writing field %q: %w", fld.name, err)
		}
	}

	for _, ff := range f.files {
		if err := writeFile(w, ff); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, ff formFile) error {
	data, err := os.ReadFile(ff.ref.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ff.ref.Path, err)
	}

	filename := ff.ref.Name
	if filename == "" {
		filename = filepath.Base(ff.ref.Path)
	}
	contentType := ff.ref.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(ff.name), quoteEscaper.Replace(filename),
	))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating part %q: %w", ff.name, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("writing part %q: %w", ff.name, err)
	}
	return nil
}
