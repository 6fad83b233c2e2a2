package media

import "github.com/archtone/archtone/loopspec"

// ReadOp is what a loopDriver tells its caller to do next: read some
// number of frames, seek to an absolute frame, or stop because the
// source has reached EOF with nothing left to loop back to.
type ReadOp struct {
	kind   readOpKind
	amount uint64 // frame count for Read, target position for Seek
}

type readOpKind int

const (
	readOpRead readOpKind = iota
	readOpSeek
	readOpReachedEOF
)

func opRead(frames uint64) ReadOp { return ReadOp{kind: readOpRead, amount: frames} }
func opSeek(pos uint64) ReadOp    { return ReadOp{kind: readOpSeek, amount: pos} }
func opReachedEOF() ReadOp        { return ReadOp{kind: readOpReachedEOF} }

// IsRead, IsSeek, and IsReachedEOF report which kind of operation this
// ReadOp is; Amount is only meaningful for Read (frame count to read)
// and Seek (target frame position).
func (o ReadOp) IsRead() bool       { return o.kind == readOpRead }
func (o ReadOp) IsSeek() bool       { return o.kind == readOpSeek }
func (o ReadOp) IsReachedEOF() bool { return o.kind == readOpReachedEOF }
func (o ReadOp) Amount() uint64     { return o.amount }

// loopPoint mirrors loopspec's internal endpoint representation: a
// specific sample, or "the end of the source", which is always beyond
// every specific sample.
type loopPoint struct {
	isEnd  bool
	sample uint64
}

// loopDriver is a pure state machine computing, for a streaming
// source, whether the next read should continue forward, seek back to
// a loop's start, or stop at EOF. It tracks only its own prediction of
// the source's read position: the underlying decoder is not always
// able to seek precisely, so the driver treats every seek it issues as
// authoritative and lets itself become consistent again the next time
// the loop restarts, rather than demanding the source confirm where it
// landed.
type loopDriver struct {
	predictedPosition uint64
	looping           bool
	eof               bool

	loopStart loopPoint // Sample(0) when not looping
	loopEnd   loopPoint // End when not looping

	sampleRate uint64
}

func newLoopDriver(sampleRate uint64) *loopDriver {
	return &loopDriver{
		loopStart:  loopPoint{sample: 0},
		loopEnd:    loopPoint{isEnd: true},
		sampleRate: sampleRate,
	}
}

// configureLooping installs spec as this driver's loop configuration,
// resolved to sample offsets at the driver's sample rate.
func (d *loopDriver) configureLooping(spec loopspec.Spec) error {
	start, end, ok, err := spec.Endpoints(d.sampleRate)
	if err != nil {
		return err
	}
	if !ok {
		d.looping = false
		d.loopStart = loopPoint{sample: 0}
		d.loopEnd = loopPoint{isEnd: true}
		return nil
	}

	d.loopStart = loopPoint{sample: start}
	if end == nil {
		d.loopEnd = loopPoint{isEnd: true}
	} else {
		d.loopEnd = loopPoint{sample: *end}
	}
	d.looping = true
	return nil
}

// preRead tells the driver the caller wants to read up to frames
// frames next, and returns what it should actually do.
func (d *loopDriver) preRead(frames uint64) ReadOp {
	if !d.looping {
		if d.eof {
			return opReachedEOF()
		}
		return opRead(frames)
	}

	if d.eof {
		return opSeek(d.loopStartSample())
	}

	if d.loopEnd.isEnd {
		// Read until EOF is observed; handled above once it is.
		return opRead(frames)
	}

	wantedEnd := d.loopEnd.sample
	var avail uint64
	if d.predictedPosition > wantedEnd {
		avail = 0
	} else {
		avail = wantedEnd - d.predictedPosition + 1 // inclusive endpoint
	}

	clamped := frames
	if avail < clamped {
		clamped = avail
	}
	if clamped == 0 {
		return opSeek(d.loopStartSample())
	}
	return opRead(clamped)
}

func (d *loopDriver) loopStartSample() uint64 {
	if d.loopStart.isEnd {
		panic("media: loop start point is always a specific sample")
	}
	return d.loopStart.sample
}

// observeEOF records that the source just reported end of stream. If
// the driver's predicted position hasn't yet reached the loop's
// start, looping stops rather than attempting an EOF-to-EOF loop.
func (d *loopDriver) observeEOF() {
	d.eof = true
	if d.predictedPosition < d.loopStartSample() {
		d.looping = false
	}
}

// observeSeek records that the source's position is now newPos,
// clearing any pending EOF.
func (d *loopDriver) observeSeek(newPos uint64) {
	d.predictedPosition = newPos
	d.eof = false
}

// observeRead records that amount frames were just read. Must never
// be called with more than the ReadOp most recently returned by
// preRead allowed.
func (d *loopDriver) observeRead(amount uint64) {
	d.predictedPosition += amount
}
