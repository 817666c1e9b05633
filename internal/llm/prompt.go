package llm

// Instruction is appended to every extracted text. The model is expected to
// answer with a bare HTML <table>.
const Instruction = "Extract the patient details from the given medical report and return a proper HTML table " +
	"with the following columns: Patient Name, Age, Gender, Diagnosis, Treatment, Admitted Date, Follow-up Date. " +
	"Ensure the output is a clean, structured <table> without any Markdown or code formatting. " +
	"Do NOT wrap the table inside ```html or any other code block. " +
	"If gender value is missing, infer it using the patient’s name if possible. " +
	"If no information is available, leave the field blank but keep the table structure intact."

// SummaryColumns are the table columns Instruction asks for, in order.
var SummaryColumns = []string{
	"Patient Name", "Age", "Gender", "Diagnosis", "Treatment", "Admitted Date", "Follow-up Date",
}

// BuildPrompt joins the extracted text and Instruction with one blank line.
// Text is used verbatim, including when it is empty.
func BuildPrompt(text string) string {
	return text + "\n\n" + Instruction
}
