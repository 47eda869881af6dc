package runtime

// The four capability tiers below are the interface boundary a derive
// front-end generates implementations against; the front-end itself is an
// external collaborator out of scope here, but the interfaces it targets
// are part of this runtime's public surface.

// TemplateSimple is implemented on a template type whose generated body
// consumes self without ever destructuring its fields by pattern.
type TemplateSimple interface {
	RenderSimple() (string, error)
	RenderSimpleTo(buf *Buffer) error
}

// TemplateOnce is implemented on a template type whose generated body
// consumes self and may destructure it by field pattern. This is the
// tier a <%+ expr %> nested-template expression's expr must satisfy --
// see RenderOnce in render.go.
type TemplateOnce interface {
	RenderOnceSelf() (string, error)
	RenderOnceTo(buf *Buffer) error
}

// TemplateMut is implemented on *T when the generated body mutates self
// while rendering.
type TemplateMut interface {
	RenderMut() (string, error)
	RenderMutTo(buf *Buffer) error
}

// Template is implemented for shared, repeatable rendering: the generated
// body only reads self and may be called any number of times.
type Template interface {
	Render() (string, error)
	RenderTo(buf *Buffer) error
}
