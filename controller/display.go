package controller

// Display holds what the presenter shows besides the parameters: the last
// error message and the handle of the last rendered image.
type Display struct {
	msg      string
	cause    error
	artifact string
}

// Err returns the message of the most recent failure, empty if the last
// edit or render succeeded.
func (d *Display) Err() string { return d.msg }

// Cause returns the typed error behind Err, nil when Err is empty.
func (d *Display) Cause() error { return d.cause }

// Artifact returns the handle of the last successfully rendered image.
// It is not cleared by failed renders.
func (d *Display) Artifact() string { return d.artifact }

func (d *Display) setErr(msg string, cause error) {
	d.msg = msg
	d.cause = cause
}

func (d *Display) clearErr() { d.setErr("", nil) }

// setArtifact stores handle and returns the handle it replaced.
func (d *Display) setArtifact(handle string) (old string) {
	old, d.artifact = d.artifact, handle
	return old
}
