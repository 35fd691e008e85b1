package pubcontent

import (
	"bytes"
	"encoding/xml"
)

// marshalXML encodes v as an XML document with the standard header.
func marshalXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
