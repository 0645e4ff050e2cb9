package core

// BalanceHeuristic returns the MIS weight of a strategy with density pdfA
// competing against one with density pdfB: pdfA / (pdfA + pdfB).
func BalanceHeuristic(pdfA, pdfB float64) float64 {
	if pdfA+pdfB <= 0 {
		return 0
	}
	return pdfA / (pdfA + pdfB)
}

// PowerHeuristic implements the power heuristic (beta = 2) for nf and ng samples
func PowerHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	if f*f+g*g <= 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}
