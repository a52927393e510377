package gateway

import (
	"archviz-studio/internal/media"
	"archviz-studio/internal/prompt"
)

// Payload is the JSON body of one generation call. Images are slotted by
// role; AdditionalPrompt carries the whole compiled instruction.
type Payload struct {
	Image            media.Image   `json:"image"`
	AdditionalImages []media.Image `json:"additionalImages,omitempty"`
	SiteImage        media.Image   `json:"siteImage,omitzero"`
	ReferenceImages  []media.Image `json:"referenceImages,omitempty"`
	Material1Image   media.Image   `json:"material1Image,omitzero"`
	Material2Image   media.Image   `json:"material2Image,omitzero"`
	AspectRatio      string        `json:"aspectRatio,omitempty"`
	ImageSize        string        `json:"imageSize,omitempty"`
	AdditionalPrompt string        `json:"additionalPrompt"`
}

type OutputParams struct {
	AspectRatio string
	ImageSize   string
}

// PayloadFromCompiled slots the compiled attachments by role.
func PayloadFromCompiled(c prompt.Compiled, out OutputParams) Payload {
	p := Payload{
		AspectRatio:      out.AspectRatio,
		ImageSize:        out.ImageSize,
		AdditionalPrompt: c.Instruction,
	}
	for _, a := range c.Images {
		switch a.Role {
		case prompt.RoleBase:
			p.Image = a.Image
		case prompt.RoleAdditional:
			p.AdditionalImages = append(p.AdditionalImages, a.Image)
		case prompt.RoleSite:
			p.SiteImage = a.Image
		case prompt.RoleReference:
			p.ReferenceImages = append(p.ReferenceImages, a.Image)
		case prompt.RoleMaterial1:
			p.Material1Image = a.Image
		case prompt.RoleMaterial2:
			p.Material2Image = a.Image
		}
	}
	return p
}

// Ordered lists the payload's images in canonical order: base, additional
// views, site, references, material 1, material 2. For a payload built by
// PayloadFromCompiled this is the compiled ordinal order.
func (p Payload) Ordered() []prompt.Attachment {
	var att prompt.Attachments
	if !p.Image.IsZero() {
		att.Attach(prompt.RoleBase, p.Image)
	}
	att.AttachRun(prompt.RoleAdditional, p.AdditionalImages)
	if !p.SiteImage.IsZero() {
		att.Attach(prompt.RoleSite, p.SiteImage)
	}
	att.AttachRun(prompt.RoleReference, p.ReferenceImages)
	if !p.Material1Image.IsZero() {
		att.Attach(prompt.RoleMaterial1, p.Material1Image)
	}
	if !p.Material2Image.IsZero() {
		att.Attach(prompt.RoleMaterial2, p.Material2Image)
	}
	return att.List()
}
