package audio

// Playback is one loaded audio resource. Play starts it and returns an error
// when playback cannot begin. Once started, exactly one of onEnded or onError
// is invoked unless Stop is called first. Stop halts playback and frees the
// resource; it is safe to call more than once.
type Playback interface {
	Play(onEnded func(), onError func(error)) error
	Stop() error
}
