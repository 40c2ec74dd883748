// Package convert implements the per-file conversion state machine.
//
// [Engine.Convert] runs up to 1+max_retries attempt cycles against a file.
// Every cycle tries the lossless remux first and falls back to a re-encode
// when stream copy fails; a finished output must then pass audio validation
// before it counts. Partial or invalid outputs are removed after every
// failed cycle, the original is deleted only after a validated success, and
// a file that exhausts its attempts is relocated to the failed-items
// directory (rename, then copy+remove across filesystems).
package convert
