// Package ranking turns a recommendation query into an ordered, explainable
// list of program-committee candidates.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	svc := ranking.NewService(store, cache, ranking.ServiceConfig{
//		Weights:     weights,
//		TopicPolicy: ranking.TopicPolicySoft,
//		Workers:     8,
//	})
//	resp, err := svc.Recommend(ctx, ranking.Query{
//		ConferenceSeries: "icse",
//		Topics:           []string{"software testing", "program analysis"},
//	})
//
// Every result carries a per-signal score breakdown, and the total equals the
// weighted recombination of the breakdown with the published weights. Given
// the same stored data and the same query, the output order is identical
// across calls.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of ranking weights via
// JSON configuration files loaded at startup. This enables A/B testing and
// optimization without code changes (but requires a redeploy or restart to
// pick up new configuration). See configs/ranking.calibration.json for the
// default configuration.
package ranking
