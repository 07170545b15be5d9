// Package simulation drives complete rating simulations.
//
// A run creates a fresh population of agents from a Config, plays a
// placement phase at a high K-factor followed by a steady phase at a lower
// one, and returns every agent with its full rating history. Two modes exist:
//
//   - standard: agents meet each other in round-robin journeys and outcomes
//     follow their hidden skills.
//   - elo-hell: each agent only ever plays a same-rated synthetic opponent and
//     wins with a fixed probability, isolating rating drift.
//
// Runs are deterministic for a given seed. Independent runs can be executed
// concurrently with RunBatch; nothing is shared between them.
//
// Usage:
//
//	d, err := simulation.New(simulation.DefaultConfig().WithSeed(42))
//	if err != nil {
//	    return err
//	}
//	result, err := d.Run(ctx)
//	for _, a := range result.Agents {
//	    fmt.Println(a.Name, a.Rating(), len(a.History()))
//	}
package simulation
