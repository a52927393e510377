package prompt

import (
	"fmt"
	"strings"

	"archviz-studio/internal/media"
)

// Role is the semantic slot an attached image fills.
type Role string

const (
	RoleBase       Role = "base"
	RoleAdditional Role = "additional_base"
	RoleSite       Role = "site"
	RoleReference  Role = "reference"
	RoleMaterial1  Role = "material1"
	RoleMaterial2  Role = "material2"
)

var roleLabels = map[Role]string{
	RoleBase:       "base geometry (primary view)",
	RoleAdditional: "additional view of the same subject",
	RoleSite:       "site context",
	RoleReference:  "style reference",
	RoleMaterial1:  "primary material texture",
	RoleMaterial2:  "secondary material texture",
}

func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

type Attachment struct {
	Ordinal int         `json:"ordinal"`
	Role    Role        `json:"role"`
	Image   media.Image `json:"image"`
}

// Attachments builds the ordered image list. The ordinal returned by Attach
// is the only number the instruction text may use to refer to that image.
type Attachments struct {
	list []Attachment
}

func (a *Attachments) Attach(role Role, img media.Image) int {
	n := len(a.list) + 1
	a.list = append(a.list, Attachment{Ordinal: n, Role: role, Image: img})
	return n
}

// AttachRun attaches imgs as a contiguous run and returns the first ordinal
// and the count. first is 0 when nothing was attached.
func (a *Attachments) AttachRun(role Role, imgs []media.Image) (first, count int) {
	for _, img := range imgs {
		n := a.Attach(role, img)
		if first == 0 {
			first = n
		}
		count++
	}
	return first, count
}

func (a *Attachments) Len() int { return len(a.list) }

func (a *Attachments) List() []Attachment {
	return append([]Attachment(nil), a.list...)
}

// Ref renders an ordinal reference such as "Image #3".
func Ref(ordinal int) string {
	return fmt.Sprintf("Image #%d", ordinal)
}

// RefRun renders each ordinal of a contiguous run: "Image #5, Image #6".
func RefRun(first, count int) string {
	refs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		refs = append(refs, Ref(first+i))
	}
	return strings.Join(refs, ", ")
}
