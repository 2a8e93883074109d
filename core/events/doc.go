// Package events defines the typed events that drive the push-to-talk
// session state machine.
//
// Event kinds are grouped by namespace:
//
//   - capture.*
//   - playback.*
//   - turn.*
//   - session.*
//
// capture, playback and turn events are inputs: they are posted by public
// controls, recognizer callbacks, audio callbacks and finished network calls,
// and are processed one at a time by the owning event loop. session events are
// outputs projected to the UI layer.
//
// capture events
//
//   - CaptureStartRequested (capture.start_requested): the user pressed
//     push-to-talk.
//   - CaptureStopRequested (capture.stop_requested): the user released
//     push-to-talk.
//   - CaptureAttemptStarted (capture.attempt_started): the recognizer confirmed
//     that an attempt is listening.
//   - CaptureAttemptResult (capture.attempt_result): finalized transcript of an
//     attempt.
//   - CaptureAttemptEnded (capture.attempt_ended): an attempt ended normally.
//   - CaptureAttemptFailed (capture.attempt_failed): an attempt ended with a
//     recognizer error code.
//
// playback events
//
//   - PlaybackCancelRequested (playback.cancel_requested): explicit barge-in
//     without starting capture.
//   - PlaybackEnded (playback.ended): a playback handle finished.
//   - PlaybackFailed (playback.failed): a playback handle errored mid-stream.
//
// turn events
//
//   - UserPromptSubmitted (turn.prompt_submitted): typed text to send as an
//     utterance.
//   - TurnReplied (turn.replied): chat endpoint answered.
//   - TurnSynthesized (turn.synthesized): synthesis endpoint returned audio.
//   - TurnFailed (turn.failed): chat or synthesis stage failed.
//
// session events
//
//   - StatusChanged (session.status_changed): displayed mode changed.
//   - MessageAppended (session.message_appended): a transcript entry should be
//     displayed.
//   - CaptureUnavailable (session.capture_unavailable): no recognizer is
//     configured; push-to-talk should be disabled.
package events
