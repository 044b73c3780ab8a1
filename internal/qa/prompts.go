package qa

import (
	"fmt"

	"github.com/biokg/kgbench/internal/graph"
)

const promptRules = "IMPORTANT RULES:\n" +
	"1. Keep questions and answers short and concise\n" +
	"2. Do not include explanations or rationales\n" +
	"3. Do not use multiple choice format\n" +
	"4. Focus on specific disease, treatment, or molecular mechanism\n" +
	"5. Make it challenging but answerable\n\n"

const promptHeader = "You are a biomedical expert. Your task is to generate a short-answer style " +
	"medical exam question and a clear answer based on the given information. " +
	"IMPORTANT: Follow the exact format of the examples below.\n\n"

const promptFooter = "Output:\nQuestion:\nAnswer:"

func onehopPrompt(t graph.Triple, context string) string {
	return promptHeader +
		"EXAMPLES (Follow these formats exactly):\n" +
		"Example 1:\n" +
		"Question: Which types of cancer are associated with MET?\n" +
		"Answer: MET is associated with low-grade glioma, renal clear cell carcinoma, " +
		"and papillary renal cell carcinoma.\n\n" +
		"Example 2:\n" +
		"Question: What drugs can treat cancers with TERT mutations?\n" +
		"Answer: Cancers with TERT mutations can be inhibited by doxorubicin.\n\n" +
		promptRules +
		"Now, generate a question and answer based on the following information:\n" +
		fmt.Sprintf("Subgraph:\n- Head entity (%s): %s\n", typeOrUnknown(t.HeadType), t.Head) +
		fmt.Sprintf("- Relation: %s\n- Tail entity (%s): %s\n", t.Relation, typeOrUnknown(t.TailType), t.Tail) +
		fmt.Sprintf("PubMed context:\n%s\n", context) +
		promptFooter
}

func twohopPrompt(p graph.TwoHopPath, context string) string {
	return promptHeader +
		"EXAMPLES (Follow these formats exactly):\n" +
		"Example 1:\n" +
		"Question: Which gene is expressed in the brain and regulates dopamine levels?\n" +
		"Answer: COMT is expressed in the brain and regulates dopamine levels.\n\n" +
		promptRules +
		"Now, generate a question and answer based on the following information:\n" +
		fmt.Sprintf("Subgraph:\n- Head entity (%s): %s\n", typeOrUnknown(p.HeadType), p.Head) +
		fmt.Sprintf("- Relation1: %s\n- Intermediate entity (%s): %s\n", p.Relation1, typeOrUnknown(p.MidType), p.Mid) +
		fmt.Sprintf("- Relation2: %s\n- Tail entity (%s): %s\n", p.Relation2, typeOrUnknown(p.TailType), p.Tail) +
		fmt.Sprintf("PubMed context:\n%s\n", context) +
		promptFooter
}

func intersectionPrompt(in graph.Intersection, context string) string {
	return promptHeader +
		"EXAMPLES (Follow these formats exactly):\n" +
		"Example 1:\n" +
		"Question: What is the common target of both EGFR and HER2 inhibitors?\n" +
		"Answer: PI3K is the common target of both EGFR and HER2 inhibitors.\n\n" +
		promptRules +
		"Now, generate a question and answer based on the following information:\n" +
		fmt.Sprintf("Subgraph:\n- Head1 entity (%s): %s\n", typeOrUnknown(in.Head1Type), in.Head1) +
		fmt.Sprintf("- Relation1: %s\n- Common entity (%s): %s\n", in.Relation1, typeOrUnknown(in.CommonType), in.Common) +
		fmt.Sprintf("- Relation2: %s\n- Head2 entity (%s): %s\n", in.Relation2, typeOrUnknown(in.Head2Type), in.Head2) +
		fmt.Sprintf("PubMed context:\n%s\n", context) +
		promptFooter
}

func attributePrompt(n graph.AttributeNode, context string) string {
	return promptHeader +
		"EXAMPLES (Follow these formats exactly):\n" +
		"Example 1:\n" +
		"Question: What is the molecular function of TP53?\n" +
		"Answer: TP53 functions as a tumor suppressor protein.\n\n" +
		promptRules +
		"Now, generate a question and answer based on the following information:\n" +
		fmt.Sprintf("Entity: %s (Description: %s)\n", n.Name, n.Description) +
		fmt.Sprintf("Type: %s\n", typeOrUnknown(n.Type)) +
		fmt.Sprintf("PubMed context:\n%s\n", context) +
		promptFooter
}

func typeOrUnknown(value string) string {
	if value == "" {
		return "Unknown"
	}
	return value
}
