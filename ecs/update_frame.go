package ecs

// UpdateFrame is handed to every system during one Runner.Once call.
type UpdateFrame struct {
	DeltaTime float64
	Frame     uint64
	Scene     *Scene
	Scheduler Scheduler
	Commands  *Commands

	// Dependency is the handle of the work scheduled so far in this frame.
	// Systems that schedule queries pass it as dependsOn and store the
	// returned handle back; the Runner waits for it before flushing.
	Dependency Handle
}

func newUpdateFrame(dt float64, frame uint64, scene *Scene, sched Scheduler, commands *Commands) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Frame:     frame,
		Scene:     scene,
		Scheduler: sched,
		Commands:  commands,
	}
}

// After records h as the frame dependency and returns it.
func (f *UpdateFrame) After(h Handle) Handle {
	f.Dependency = h
	return h
}
