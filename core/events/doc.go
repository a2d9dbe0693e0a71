// Package events defines the typed events a voice session reports to its
// observer.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - language.*
//   - user_input.*
//   - assistant_response.*
//   - assistant_speech.*
//
// session events
//
//   - SessionStateChanged (session.state_changed): the session moved from one
//     lifecycle state to another.
//   - GreetingRequested (session.greeting_requested): the opening greeting
//     was requested from the generation engine.
//
// language events
//
//   - LanguageDetected (language.detected): recognition reported a language
//     for a final result. Accepted is false when the code is not supported.
//   - LanguageChanged (language.changed): the session language changed.
//
// user_input events
//
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptInterimUpdated (user_input.transcript_interim_updated):
//     mutable interim full transcript snapshot.
//   - UserTranscriptFinal (user_input.transcript_final): finalized transcript
//     with the language it was recognized in, if any.
//
// assistant_response events
//
//   - AssistantResponseSegment (assistant_response.segment): streamed response
//     text segment.
//   - AssistantResponseFinal (assistant_response.final): response is complete.
//
// assistant_speech events
//
//   - AssistantSpeechFrame (assistant_speech.frame): speech audio produced for
//     the assistant.
package events
