package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct{ name string }

func (g greeting) RenderSimple() (string, error) {
	buf := New()
	if err := g.RenderSimpleTo(buf); err != nil {
		return "", err
	}
	return buf.IntoString(), nil
}

func (g greeting) RenderSimpleTo(buf *Buffer) error {
	buf.PushString("hello, ")
	return RenderEscaped(buf, g.name)
}

type counter struct{ n int }

func (c *counter) RenderMut() (string, error) {
	buf := New()
	if err := c.RenderMutTo(buf); err != nil {
		return "", err
	}
	return buf.IntoString(), nil
}

func (c *counter) RenderMutTo(buf *Buffer) error {
	c.n++
	return Render(buf, c.n)
}

type shared struct{ body string }

func (s shared) Render() (string, error) {
	buf := New()
	if err := s.RenderTo(buf); err != nil {
		return "", err
	}
	return buf.IntoString(), nil
}

func (s shared) RenderTo(buf *Buffer) error {
	RenderText(buf, s.body)
	return nil
}

func TestTemplateSimpleTier(t *testing.T) {
	var tmpl TemplateSimple = greeting{name: "<b>"}
	out, err := tmpl.RenderSimple()
	require.NoError(t, err)
	assert.Equal(t, "hello, &lt;b&gt;", out)
}

func TestTemplateMutTierMutatesOnEachRender(t *testing.T) {
	var tmpl TemplateMut = &counter{}
	first, err := tmpl.RenderMut()
	require.NoError(t, err)
	second, err := tmpl.RenderMut()
	require.NoError(t, err)
	assert.Equal(t, "1", first)
	assert.Equal(t, "2", second)
}

func TestTemplateSharedTierIsRepeatable(t *testing.T) {
	var tmpl Template = shared{body: "static"}
	first, err := tmpl.Render()
	require.NoError(t, err)
	second, err := tmpl.Render()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "static", first)
}

func TestTemplateOnceTierViaRenderOnce(t *testing.T) {
	buf := New()
	require.NoError(t, RenderOnce(buf, onceTemplate{body: "once-body"}))
	assert.Equal(t, "once-body", buf.String())
}
