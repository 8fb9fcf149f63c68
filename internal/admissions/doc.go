// Package admissions loads a high school's admissions record, derives
// categorical labels from the free-text offer column and serves filter and
// aggregate queries over the resulting immutable table.
//
// # Architecture
//
// The package is organized as a pipeline:
//
//  1. Loader: reads CSV (UTF-8 with or without signature, EUC-KR fallback)
//     or XLSX and renames source headers to canonical names
//  2. Coercion: numeric columns become optional numbers, bad cells become missing
//  3. Offer parser: institution, track label and department from the first offer
//  4. Classifier: track category, department category and group flags
//  5. Outcome inference: 합격 or 미상 when the source carries no outcome column
//  6. Table: immutable rows with Filter, GroupCount and GroupMean
//
// # Usage
//
//	table, err := admissions.LoadAndClassify("admission_results.csv")
//	if err != nil {
//	    return err
//	}
//	admitted, err := table.Filter(admissions.Equals(domain.FieldAdmissionOutcome, domain.OutcomeAdmitted))
//	counts, err := admitted.GroupCount(domain.FieldPrimaryInstitution)
//
// # Data Flow
//
//	File → LoadRaw → RawTable → Classify → Table → Filter/GroupCount/GroupMean
//
// # Limitations
//
// Only the first comma-separated entry of the offer column is analyzed. A
// student listing several offers is classified by the first one alone.
package admissions
