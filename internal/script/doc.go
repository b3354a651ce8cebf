// Package script replays builder actions described in YAML and records
// what each one did.
//
// # Script Format
//
//	name: reorder
//	description: "Move a rule to the end and drop an empty group"
//	fields: people.cue          # optional field catalog, relative to the script
//	builder:
//	  id: qb
//	  independentCombinators: false
//	  maxLevels: 3
//	  disabledPaths: [[1]]
//	query:                      # optional initial tree
//	  id: root
//	  combinator: and
//	  rules:
//	    - {id: A, field: firstName, operator: "=", value: Ann}
//	steps:
//	  - action: addRule
//	    path: []
//	    node: {field: age, operator: ">", value: 30}
//	  - action: move
//	    path: [0]
//	    to: [2]
//	    expect: {event: move, changed: true}
//	expect:
//	  valid: true
//	  query: {...}              # the final tree, compared canonically
//
// # Actions
//
//   - addRule, addGroup: node (optional) is appended to the group at path
//   - remove: removes the node at path
//   - update: sets prop to value on the element at path
//   - move: moves path to "to", copying when clone is set
//   - shift: swaps path with a sibling, dir up or down
//   - clone: copies path next to itself
//   - group: wraps path and "to" in a new group
//   - drop: a drag-and-drop gesture from path onto "to", with kind and mode
//   - dispatch: replaces the whole tree with node
//   - convert: switches the tree to form ic or standard
//
// # Deterministic Output
//
// New node ids come from a sequential generator ("n1", "n2", ...), so the
// same script always produces byte-identical traces. Traces compare
// against golden files with AssertGolden.
package script
