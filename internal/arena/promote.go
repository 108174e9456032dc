package arena

// decidePromotions applies the mortality-threshold promotion rule (design
// note: a generation's survivors are promoted to the next generation when
// the generation's observed survival fraction, measured at the end of its
// previous cycle, is at or above its configured mortality threshold) to
// every generation but the last, which has nowhere further to promote
// into.
func decidePromotions(p *Pool) {
	for gen := 0; gen < p.Generations()-1; gen++ {
		promote := p.LastSurvival(gen) >= p.Mortality(gen)
		p.SetPromote(gen, promote)
	}
}
