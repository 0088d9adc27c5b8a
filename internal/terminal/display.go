package terminal

// Display receives dashboard frames. Each Replace supersedes the previous frame; Done
// keeps the last frame on screen and releases the display.
type Display interface {
	Replace(frame string) error
	Done() error
}

// Recorder is an in-memory Display.
type Recorder struct {
	Frames    []string
	DoneCalls int

	// OnReplace, when set, is called after a frame is recorded.
	OnReplace func(frame string)
}

// Replace records frame.
func (r *Recorder) Replace(frame string) error {
	r.Frames = append(r.Frames, frame)
	if r.OnReplace != nil {
		r.OnReplace(frame)
	}
	return nil
}

// Done counts the call.
func (r *Recorder) Done() error {
	r.DoneCalls++
	return nil
}

// Last returns the most recent frame, or "".
func (r *Recorder) Last() string {
	if len(r.Frames) == 0 {
		return ""
	}
	return r.Frames[len(r.Frames)-1]
}
