package relay

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
)

// OutputGeometryFunc is supplied by internal/output so the relay layer
// can push reconciled geometry into the output-geometry tracker
// without relay importing internal/output.
type OutputGeometryFunc func(key store.ObjectKey, x, y, w, h int32, transform int32)

// HandleOutputBind creates a key-bound Object for one bound wl_output
// instance and wires its event stream: outputs produce geometry/mode/
// scale/done events that both the X side and the output tracker need.
// onDone fires after each atomic batch of output property changes, the
// point where the caller re-advertises the output to the X side.
func (e *Engine) HandleOutputBind(name uint32, clientOutput *client.Output, onGeometry OutputGeometryFunc, onScale func(key store.ObjectKey, factor int32), onDone func(key store.ObjectKey)) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		clientOutput.SetGeometryHandler(func(ev client.OutputGeometryEvent) {
			onGeometry(key, int32(ev.X), int32(ev.Y), 0, 0, int32(ev.Transform))
		})
		clientOutput.SetModeHandler(func(ev client.OutputModeEvent) {
			onGeometry(key, 0, 0, ev.Width, ev.Height, -1)
		})
		clientOutput.SetScaleHandler(func(ev client.OutputScaleEvent) {
			if onScale != nil {
				onScale(key, ev.Factor)
			}
		})
		clientOutput.SetDoneHandler(func(client.OutputDoneEvent) {
			if onDone != nil {
				onDone(key)
			}
		})
		return store.NewOutput(key, store.OutputData{
			ClientOutput: clientOutput,
			Name:         name,
		})
	})
}

// HandleXdgOutputBind pairs a zxdg_output_v1 instance with its
// wl_output. XdgOutput is a distinct bridged object: it is a separate
// wire interface that happens to describe the same physical output.
func (e *Engine) HandleXdgOutputBind(outputKey store.ObjectKey, clientXdgOutput *client.ZxdgOutputV1) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewXdgOutput(key, store.XdgOutputData{
			ClientXdgOutput: clientXdgOutput,
			Output:          outputKey,
		})
	})
}
