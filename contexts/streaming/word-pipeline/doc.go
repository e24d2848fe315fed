// Package wordpipeline contains the ccdemo word-streaming pipeline: a
// publisher that emits words from a text file, a durable subscriber that
// persists each word, and a cursor-paginated read path over stored words.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package wordpipeline
