// Package flowfile reads and writes chat flows as HCL documents.
//
// A flow file contains one `node` block per node and one `edge` block per
// edge, labelled with their ids:
//
//	node "1" {
//	  type = "textMessage"
//	  x    = 100
//	  y    = 100
//	  text = "Hello"
//	}
//
//	edge "e1-2" {
//	  source = "1"
//	  target = "2"
//	}
//
// Load turns such a file into a flow.Graph that satisfies flow.Graph.Check;
// Encode does the reverse. FileSink plugs Encode into the editor's save
// hand-off.
package flowfile
