// Package audio obtains pronunciation audio for German terms. Recorded
// native pronunciations are looked up on Forvo first; when no recording
// exists (or no Forvo key is configured) the audio is synthesized with
// OpenAI text-to-speech. The resolver walks that fallback chain and reports
// which query text actually produced the stored file.
package audio
