// Package qti compiles authored items into QTI 3.0 markup.
//
// The core is the response-processing compiler: response declarations are
// encoded into correct-response records (plus score mappings where the base
// type needs them), and the feedback plan is turned into a minimal nested
// condition tree that assigns exactly one combination id to the feedback
// outcome for every reachable outcome path.
//
// Every entry point is a pure function of its input. Compiling the same item
// twice yields byte-identical output.
package qti

// Element names of the QTI 3.0 schema
const (
	tagAssessmentItem      = "qti-assessment-item"
	tagResponseDeclaration = "qti-response-declaration"
	tagOutcomeDeclaration  = "qti-outcome-declaration"
	tagCorrectResponse     = "qti-correct-response"
	tagDefaultValue        = "qti-default-value"
	tagValue               = "qti-value"
	tagMapping             = "qti-mapping"
	tagMapEntry            = "qti-map-entry"
	tagItemBody            = "qti-item-body"
	tagModalFeedback       = "qti-modal-feedback"
	tagContentBody         = "qti-content-body"
	tagResponseProcessing  = "qti-response-processing"
	tagResponseCondition   = "qti-response-condition"
	tagResponseIf          = "qti-response-if"
	tagResponseElseIf      = "qti-response-else-if"
	tagResponseElse        = "qti-response-else"
	tagSetOutcomeValue     = "qti-set-outcome-value"
	tagMatch               = "qti-match"
	tagEqualRounded        = "qti-equal-rounded"
	tagVariable            = "qti-variable"
	tagCorrect             = "qti-correct"
	tagBaseValue           = "qti-base-value"
)

// Attribute names
const (
	attrIdentifier        = "identifier"
	attrCardinality       = "cardinality"
	attrBaseType          = "base-type"
	attrDefaultValue      = "default-value"
	attrMapKey            = "map-key"
	attrMappedValue       = "mapped-value"
	attrRoundingMode      = "rounding-mode"
	attrFigures           = "figures"
	attrOutcomeIdentifier = "outcome-identifier"
	attrShowHide          = "show-hide"
	attrTitle             = "title"
	attrAdaptive          = "adaptive"
	attrTimeDependent     = "time-dependent"
	attrXMLNS             = "xmlns"
)

// qtiNamespace is the QTI 3.0 assessment item namespace
const qtiNamespace = "http://www.imsglobal.org/xsd/imsqtiasi_v3p0"
