//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-spatial/internal/webdemo"
)

var (
	engine *webdemo.Engine
	funcs  []js.Func
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		opts := webdemo.Options{}
		if len(args) > 0 && args[0].Type() == js.TypeObject {
			cfg := args[0]
			opts.SampleRate = number(cfg.Get("sampleRate"))
			opts.BlockSize = int(number(cfg.Get("blockSize")))
			opts.Order = int(number(cfg.Get("order")))
			if b := cfg.Get("backend"); b.Type() == js.TypeString {
				opts.Backend = b.String()
			}
		}
		if engine != nil {
			_ = engine.Dispose()
			engine = nil
		}
		e, err := webdemo.NewEngine(opts)
		if err != nil {
			return err.Error()
		}
		engine = e
		return js.Null()
	}))

	api.Set("join", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		name := ""
		if len(args) > 1 {
			name = args[1].String()
		}
		return result(engine.Join(args[0].String(), name))
	}))

	api.Set("leave", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return result(engine.Leave(args[0].String()))
	}))

	api.Set("attach", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		return result(engine.Attach(args[0].String(), args[1].Bool()))
	}))

	api.Set("pushSamples", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		input := args[1]
		samples := make([]float32, input.Length())
		for i := range samples {
			samples[i] = float32(input.Index(i).Float())
		}
		return result(engine.PushSamples(args[0].String(), samples))
	}))

	api.Set("pose", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		return result(engine.SetPose(args[0].String(), floats(args[1])))
	}))

	api.Set("listener", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return result(engine.SetListener(floats(args[0])))
	}))

	api.Set("tick", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Array").New(0)
		}
		events := engine.Tick(args[0].Float())
		arr := js.Global().Get("Array").New(len(events))
		for i, ev := range events {
			obj := js.Global().Get("Object").New()
			obj.Set("id", ev.ID)
			obj.Set("isActive", ev.IsActive)
			arr.SetIndex(i, obj)
		}
		return arr
	}))

	api.Set("render", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		frames := args[0].Int()
		buf := make([]float32, 2*frames)
		n, err := engine.Render(buf)
		if err != nil {
			return err.Error()
		}
		arr := js.Global().Get("Float32Array").New(2 * n)
		for i := range 2 * n {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	api.Set("setAudioProperties", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		p := args[0]
		rolloff := "logarithmic"
		if r := p.Get("rolloff"); r.Type() == js.TypeString {
			rolloff = r.String()
		}
		engine.SetAudioProperties(
			number(p.Get("minDistance")),
			number(p.Get("maxDistance")),
			rolloff,
			number(p.Get("transitionTime")),
		)
		return js.Null()
	}))

	api.Set("setRoom", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		r := args[0]
		material := "transparent"
		if m := r.Get("material"); m.Type() == js.TypeString {
			material = m.String()
		}
		return result(engine.SetRoom(
			number(r.Get("width")),
			number(r.Get("height")),
			number(r.Get("depth")),
			material,
		))
	}))

	api.Set("setMode", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		return result(engine.SetMode(args[0].String()))
	}))

	api.Set("spectrum", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		buf := make([]float32, args[0].Int())
		n, err := engine.Spectrum(buf)
		if err != nil {
			return err.Error()
		}
		arr := js.Global().Get("Float32Array").New(n)
		for i := range n {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	js.Global().Set("algoSpatial", api)
	select {}
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}

// result maps a nil error to null and anything else to its message.
func result(err error) any {
	if err != nil {
		return err.Error()
	}
	return js.Null()
}

func number(v js.Value) float64 {
	if v.Type() != js.TypeNumber {
		return 0
	}
	return v.Float()
}

func floats(v js.Value) []float64 {
	out := make([]float64, v.Length())
	for i := range out {
		out[i] = v.Index(i).Float()
	}
	return out
}
