package lua

import (
	"encoding/base64"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// imageFormat tags the JSON document the compiler writes and the runtime loads.
// Chunk sources are base64 encoded; Lua source is bytes, not UTF-8 text.
const imageFormat = "codetask.luaimg/2"

// chunk is one named Lua source bundled in an image.
type chunk struct {
	Name   string
	Source string
}

// image is a compiled task: the task chunk plus every module it was
// compiled against.
type image struct {
	Name    string
	Main    string
	Modules []chunk
}

func encodeImage(img image) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			out, err = sjson.SetBytes(out, path, value)
		}
	}

	set("format", imageFormat)
	set("name", img.Name)
	set("main", base64.StdEncoding.EncodeToString([]byte(img.Main)))
	if err == nil {
		out, err = sjson.SetRawBytes(out, "modules", []byte(`[]`))
	}
	for _, m := range img.Modules {
		set("modules.-1", map[string]string{
			"name":   m.Name,
			"source": base64.StdEncoding.EncodeToString([]byte(m.Source)),
		})
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode image")
	}
	return out, nil
}

func decodeImage(data []byte) (image, error) {
	if !gjson.ValidBytes(data) {
		return image{}, zerr.With(domain.ErrModuleLoadFailed, "reason", "artifact is not a Lua image")
	}

	doc := gjson.ParseBytes(data)
	if format := doc.Get("format").String(); format != imageFormat {
		return image{}, zerr.With(zerr.With(domain.ErrModuleLoadFailed,
			"reason", "unsupported image format"), "format", format)
	}

	main, err := decodeSource(doc.Get("main"))
	if err != nil {
		return image{}, zerr.With(err, "module", "main")
	}
	img := image{Name: doc.Get("name").String(), Main: main}

	for _, m := range doc.Get("modules").Array() {
		name := m.Get("name").String()
		src, err := decodeSource(m.Get("source"))
		if err != nil {
			return image{}, zerr.With(err, "module", name)
		}
		img.Modules = append(img.Modules, chunk{Name: name, Source: src})
	}
	return img, nil
}

func decodeSource(v gjson.Result) (string, error) {
	b, err := base64.StdEncoding.DecodeString(v.String())
	if err != nil {
		return "", zerr.With(domain.ErrModuleLoadFailed, "reason", "corrupt chunk source")
	}
	return string(b), nil
}
