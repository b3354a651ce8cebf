package engine

import "github.com/roach88/querybuilder/internal/treepath"

// checkUnrelated rejects a source/destination pair that would make a node
// its own descendant.
//
// Example cycle:
//
//	move [0] -> [0,1]: the group at [0] would be inserted into itself
//	group [0] with [0,1]: the wrapper would contain its own parent
//
// For move only the source-above-destination direction is a cycle; a node
// may move into any of its ancestors. Group rejects both directions
// because the wrapper takes the target's slot.
func checkUnrelated(op string, src, dst treepath.Path, bothWays bool) *RejectError {
	if src.Equal(dst) {
		return reject(op, ErrCodeSamePath, src, "source and destination are the same")
	}
	if src.IsAncestorOf(dst) {
		re := reject(op, ErrCodeAncestor, src, "cannot place a node inside itself")
		re.Details = map[string]string{"destination": dst.String()}
		return re
	}
	if bothWays && dst.IsAncestorOf(src) {
		re := reject(op, ErrCodeAncestor, src, "destination contains the source")
		re.Details = map[string]string{"destination": dst.String()}
		return re
	}
	return nil
}
