package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"

	"github.com/matrific/matrific-web/pkg/casing"
)

// File is an opaque upload handle.
type File interface {
	FileName() string
	Reader() io.Reader
}

type mediaTyper interface {
	MediaType() string
}

// EncodeMultipart writes a transport-case mapping as multipart/form-data in
// entry order. Primitives become form fields, opaque values become file
// parts, sequences repeat their key per element and nulls are skipped.
func EncodeMultipart(body casing.Value) (io.Reader, string, error) {
	if body.Kind() != casing.KindMapping {
		return nil, "", fmt.Errorf("multipart body must be a mapping, got %s", body.Kind())
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, e := range body.Entries() {
		if err := writePart(w, e.Key, e.Value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func writePart(w *multipart.Writer, key string, v casing.Value) error {
	switch v.Kind() {
	case casing.KindNull:
		return nil
	case casing.KindPrimitive:
		p, _ := v.Primitive()
		return w.WriteField(key, formatPrimitive(p))
	case casing.KindSequence:
		for _, item := range v.Items() {
			if err := writePart(w, key, item); err != nil {
				return err
			}
		}
		return nil
	case casing.KindOpaque:
		return writeFile(w, key, v.OpaqueValue())
	default:
		return fmt.Errorf("field %s: nested mappings cannot be sent as form data", key)
	}
}

func writeFile(w *multipart.Writer, key string, handle interface{}) error {
	name := key
	var src io.Reader
	contentType := "application/octet-stream"

	switch f := handle.(type) {
	case File:
		name = f.FileName()
		src = f.Reader()
		if mt, ok := f.(mediaTyper); ok && mt.MediaType() != "" {
			contentType = mt.MediaType()
		}
	case []byte:
		src = bytes.NewReader(f)
	case io.Reader:
		src = f
	default:
		return fmt.Errorf("field %s: unsupported file handle %T", key, handle)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, key, name))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

func formatPrimitive(p interface{}) string {
	switch t := p.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
