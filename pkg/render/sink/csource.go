package sink

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/errors"
)

// CConfig holds the paths baked into the generated loader.
type CConfig struct {
	// Include is the header path written in the source's #include line.
	Include string
	// PNGPath is the sprite sheet path the loader opens at runtime.
	PNGPath string
}

// CArtifacts is the generated header and source text.
type CArtifacts struct {
	Header []byte
	Source []byte
}

var cFuncs = template.FuncMap{"cstr": cString}

var cHeader = template.Must(template.New("h").Funcs(cFuncs).Parse(`#ifndef {{.Name}}_h
#define {{.Name}}_h

#include <SDL2/SDL.h>

struct {{.Name}} {
    SDL_Texture *t;

{{range .Sprites}}    SDL_Rect *{{.Name}};
{{end}}};

struct {{.Name}} *{{.Name}}_load(SDL_Renderer *renderer);
void {{.Name}}_unload (struct {{.Name}} *pack);

#endif
`))

var cSource = template.Must(template.New("c").Funcs(cFuncs).Parse(`#include <assert.h>

#include <SDL2/SDL.h>
#include <SDL2/SDL_image.h>

#include "{{cstr .Include}}"

static const char *PNG_PATH = "{{cstr .PNGPath}}";

struct {{.Name}} *
{{.Name}}_load(SDL_Renderer *renderer)
{
    struct {{.Name}} *pack = malloc(sizeof(struct {{.Name}}));
    assert(pack != NULL);

    SDL_Surface* raw = IMG_Load(PNG_PATH);
    if (raw == NULL) {
        fprintf(stderr, "{{.Name}}: failed to load image %s: %s\n", PNG_PATH, IMG_GetError());
        exit(1);
    }

    pack->t = SDL_CreateTextureFromSurface(renderer, raw);
    if (pack->t == NULL) {
        fprintf(stderr, "{{.Name}}: failed to create texture of image %s: %s\n", PNG_PATH, SDL_GetError());
        exit(1);
    }

    SDL_FreeSurface(raw);

{{range .Sprites}}    pack->{{.Name}} = malloc(sizeof(SDL_Rect));
    assert(pack->{{.Name}} != NULL);
    pack->{{.Name}}->x = {{.X}};
    pack->{{.Name}}->y = {{.Y}};
    pack->{{.Name}}->w = {{.W}};
    pack->{{.Name}}->h = {{.H}};

{{end}}    return pack;
}

void
{{.Name}}_unload (struct {{.Name}} *pack)
{
{{range .Sprites}}    free(pack->{{.Name}});
{{end}}    free(pack);
}
`))

type cData struct {
	Name    string
	Include string
	PNGPath string
	Sprites []atlas.Sprite
}

// RenderC generates an SDL2 loader for the atlas: a header declaring
// struct <name> with one SDL_Rect pointer per sprite, and a source file
// defining <name>_load and <name>_unload.
func RenderC(a *atlas.Atlas, cfg CConfig) (CArtifacts, error) {
	if err := errors.ValidateName(a.Name); err != nil {
		return CArtifacts{}, err
	}
	for _, s := range a.Sprites {
		if err := errors.ValidateName(s.Name); err != nil {
			return CArtifacts{}, err
		}
		if s.Name == "t" {
			return CArtifacts{}, errors.New(errors.ErrCodeInvalidName,
				"sprite name 't' collides with the texture member")
		}
	}
	if cfg.Include == "" || cfg.PNGPath == "" {
		return CArtifacts{}, errors.New(errors.ErrCodeInvalidSpec,
			"C output needs both an include path and a PNG path")
	}

	data := cData{Name: a.Name, Include: cfg.Include, PNGPath: cfg.PNGPath, Sprites: a.Sprites}

	var h, c bytes.Buffer
	if err := cHeader.Execute(&h, data); err != nil {
		return CArtifacts{}, errors.Wrap(errors.ErrCodeInternal, err, "render header")
	}
	if err := cSource.Execute(&c, data); err != nil {
		return CArtifacts{}, errors.Wrap(errors.ErrCodeInternal, err, "render source")
	}
	return CArtifacts{Header: h.Bytes(), Source: c.Bytes()}, nil
}

// cString escapes s for use inside a C string literal.
func cString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
