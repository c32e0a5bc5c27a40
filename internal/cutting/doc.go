// Package cutting plans one-dimensional cuts of fixed-length stock rolls.
//
// EstimateBounds sizes the search space, BuildModel formulates one model
// variant and Cutter.CutRolls tries the variants in order, decoding the
// first solved model into a Plan.
package cutting
