// Command gldshader prints the WGSL program gldirect generates for a
// fixed-function state described in a TOML file.
//
// Usage:
//
//	gldshader [-validate] [-ir] state.toml
//	gldshader -example > state.toml
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gldirect/device"
	"github.com/gogpu/gldirect/internal/ffstate"
	"github.com/gogpu/gldirect/internal/shadergen"
	"github.com/gogpu/naga"
)

func main() {
	var (
		validate = flag.Bool("validate", false, "compile the program to SPIR-V with naga")
		ir       = flag.Bool("ir", false, "print the key, uniforms and bindings instead of the source")
		example  = flag.Bool("example", false, "print an example state file")
		units    = flag.Int("units", ffstate.MaxTextureUnits, "texture units the device supports")
	)
	flag.Parse()

	if *example {
		if err := writeExample(os.Stdout); err != nil {
			log.Fatalf("Couldn't write example: %v", err)
		}
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Couldn't read state file: %v", err)
	}
	out, err := run(string(data), options{validate: *validate, ir: *ir, units: *units})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(out)
}

type options struct {
	validate bool
	ir       bool
	units    int
}

// run generates the program for a state file and returns what to print.
func run(data string, opts options) (string, error) {
	sf, err := decodeState(data)
	if err != nil {
		return "", err
	}
	s, err := sf.build()
	if err != nil {
		return "", err
	}

	key := ffstate.Extract(&s, device.Caps{
		MaxShaderModel:  device.ShaderModelWGSL,
		MaxTextureUnits: opts.units,
	})
	p := shadergen.Generate(key)
	src := shadergen.Render(p)

	var b strings.Builder
	if opts.ir {
		describe(&b, key, p)
	} else {
		b.WriteString(src)
	}
	if opts.validate {
		spirv, err := naga.Compile(src)
		if err != nil {
			return "", fmt.Errorf("program %s does not compile: %w", key.Label(), err)
		}
		fmt.Fprintf(&b, "// %s: %d bytes of SPIR-V\n", key.Label(), len(spirv))
	}
	return b.String(), nil
}

func describe(b *strings.Builder, key ffstate.Key, p *shadergen.Program) {
	fmt.Fprintf(b, "key      %s\n", key)
	fmt.Fprintf(b, "label    %s\n", key.Label())
	fmt.Fprintf(b, "uniforms %d bytes\n", p.Uniforms.Size)
	for _, m := range p.Uniforms.Members {
		fmt.Fprintf(b, "  %4d %-24s %s\n", m.Offset, m.Param.Name(), m.Type)
	}
	for _, bd := range p.Bindings {
		fmt.Fprintf(b, "binding  %d %s (unit %d)\n", bd.Binding, bd.Name, bd.Unit)
	}
	for _, h := range p.Helpers {
		fmt.Fprintf(b, "helper   %s\n", h.Name)
	}
}

func writeExample(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(exampleState()); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
