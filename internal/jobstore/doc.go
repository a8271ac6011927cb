// Package jobstore persists generated commands as numbered job records.
//
// A job file is a single JSON object mapping decimal job ids to
// [command, tag] pairs:
//
//	{"1": ["python train.py --lr 0.1", "exp_1__lr_0.1"], "2": [...]}
//
// Files are loaded only when appending and are always rewritten whole.
// Writes are not atomic, so two processes writing the same file race and the
// last rewrite wins.
package jobstore
