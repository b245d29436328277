// Package layout loads the description of a step chain and turns it into validated step descriptors.
//
// A layout is written in YAML or in JSON with comments:
//
//	{
//	  "id": "news",
//	  "version": "2.1",
//	  "description": "tokenise then tag",
//	  "layout": [
//	    {"name": "tok", "class": "generic", "timeout": 600000, "numErrorLines": 4},
//	    {"name": "time", "kind": "file", "timeout": "10m", "numErrorLines": 4}
//	  ]
//	}
//
// Timeouts are either integer milliseconds or Go duration strings. Each step lives in its own component
// directory, by default <componentRoot>/<name>, holding the executable (run.sh unless set otherwise).
package layout
