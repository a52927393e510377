package media

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const defaultMIMEType = "image/jpeg"

// Image is an encoded picture plus its MIME type. It serializes to JSON as a
// base64 data URL.
type Image struct {
	Data     []byte
	MIMEType string
}

func FromBytes(data []byte) Image {
	return Image{Data: data, MIMEType: DetectMIMEType(data)}
}

func (i Image) IsZero() bool {
	return len(i.Data) == 0
}

func (i Image) DataURL() string {
	mimeType := i.MIMEType
	if mimeType == "" {
		mimeType = defaultMIMEType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(i.Data))
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func (i Image) MarshalJSON() ([]byte, error) {
	if i.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(i.DataURL())
}

func (i *Image) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*i = Image{}
		return nil
	}
	img, err := ParseDataURL(s)
	if err != nil {
		return err
	}
	*i = img
	return nil
}

// ParseDataURL accepts either a full data URL or bare base64. Bare base64 is
// sniffed for its MIME type.
func ParseDataURL(value string) (Image, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Image{}, errors.New("empty data url")
	}

	const prefix = "data:"
	if !strings.HasPrefix(value, prefix) {
		data, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return Image{}, fmt.Errorf("decode base64: %w", err)
		}
		return FromBytes(data), nil
	}

	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return Image{}, errors.New("invalid data url")
	}

	meta := strings.TrimPrefix(parts[0], prefix)
	mimeType := strings.TrimSpace(strings.Split(meta, ";")[0])

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return Image{}, fmt.Errorf("decode base64: %w", err)
	}
	if mimeType == "" {
		mimeType = DetectMIMEType(data)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}

// NormalizeMIMEType strips parameters and replaces generic types with a
// sniffed one.
func NormalizeMIMEType(mimeType string, data []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if strings.Contains(mimeType, ";") {
		mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = DetectMIMEType(data)
	}
	return mimeType
}

func DetectMIMEType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if strings.Contains(mimeType, ";") {
		mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	if mimeType == "" || mimeType == "application/octet-stream" || !strings.HasPrefix(mimeType, "image/") {
		return defaultMIMEType
	}
	return mimeType
}
