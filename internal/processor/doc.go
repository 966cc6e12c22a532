// Package processor contains the core business logic for turning German
// terms into flashcards. It orchestrates LLM enrichment, pronunciation
// resolution and Anki file generation. This package serves as the main
// coordinator between all other components.
package processor
