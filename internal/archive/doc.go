// Package archive moves player statistics in and out of the game as a
// portable file.
//
// An archive is a single JSON document in the flat statistics layout
// (inherited_talent, finished_games, talents, events, achievements and the
// unique_* character fields), compressed with zstd. Import also accepts the
// uncompressed document, so hand-edited files load without a recompress step.
//
// Every imported document is validated against an embedded JSON Schema before
// it is decoded. A document that fails validation never reaches the store.
package archive
