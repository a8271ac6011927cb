// Package specfile reads sweep definitions from YAML, TOML or CUE files.
//
// All three formats describe the same fields:
//
//	command: python train.py
//	jobname: exp
//	args:
//	  - name: --lr
//	    values: [0.1, 0.01]
//	randargs:
//	  - {name: --wd, kind: float, low: 1e-5, high: 1e-2, space: log}
//	tag: {flag: --tag}
//
// CUE files put the definition under a top-level sweep field, which is
// checked against the embedded #Sweep schema before decoding.
package specfile
