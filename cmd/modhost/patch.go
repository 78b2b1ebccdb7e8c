package main

import (
	"github.com/cwbudde/algo-modular/engine/graph"
	"github.com/cwbudde/algo-modular/modules"
)

var defaultSequence = []float64{0, 3.0 / 12, 7.0 / 12, 10.0 / 12, 1, 10.0 / 12, 7.0 / 12, 3.0 / 12}

// defaultPatch builds sequencer -> vco -> vcf -> vca -> stereo out, with the
// sequencer gate driving an envelope on the VCA.
func defaultPatch(p *graph.Processor) error {
	return p.Batch(func(tx *graph.Tx) error {
		ids := make(map[string]graph.LogicalID)

		for _, typ := range []string{
			modules.TypeSequencer, modules.TypeVCO, modules.TypeVCF,
			modules.TypeADSR, modules.TypeVCA,
		} {
			id, err := tx.AddModule(typ)
			if err != nil {
				return err
			}

			ids[typ] = id
		}

		seq := tx.Module(ids[modules.TypeSequencer]).(*modules.Sequencer)
		seq.Params().Get("length").Set(float64(len(defaultSequence)))

		for i, v := range defaultSequence {
			if err := seq.SetStep(i, v, true); err != nil {
				return err
			}
		}

		tx.Module(ids[modules.TypeVCO]).Params().Get("frequency").Set(110)
		tx.Module(ids[modules.TypeVCO]).Params().Get("waveform").Set(1)
		tx.Module(ids[modules.TypeVCF]).Params().Get("cutoff").Set(1200)

		for _, c := range []struct {
			src   string
			srcCh int
			dst   string
			dstCh int
		}{
			{modules.TypeSequencer, 0, modules.TypeVCO, 0},
			{modules.TypeSequencer, 1, modules.TypeADSR, 0},
			{modules.TypeVCO, 0, modules.TypeVCF, 0},
			{modules.TypeVCF, 0, modules.TypeVCA, 0},
			{modules.TypeADSR, 0, modules.TypeVCA, 1},
		} {
			if err := tx.Connect(ids[c.src], c.srcCh, ids[c.dst], c.dstCh); err != nil {
				return err
			}
		}

		vca := ids[modules.TypeVCA]
		if err := tx.Connect(vca, 0, graph.OutputID, 0); err != nil {
			return err
		}

		return tx.Connect(vca, 0, graph.OutputID, 1)
	})
}
