// File path: internal/pipeline/prompts.go
package pipeline

import (
	"fmt"
	"strings"
)

// System prompt for the table/column extraction call. The retrieval context
// block is spliced in so the model sees how earlier verified questions mapped
// to tables.
const extractionPromptTemplate = `You are an expert in extracting table information from a user prompt. Once given a prompt, you are to respond with the table name that the user is hoping to query from in addition to stating how many tables were used.
Make sure you are prioritizing tables with "SV" instead of tables with "MV".
If the query involves a join statement, make sure to list the tables and how many are used.

%s

Respond in exactly this format:
Tables: <table name>[, <table name>...]
Amount of Tables: <number>
Columns: <column name>[, <column name>...]
Amount of Columns: <number>

For example:
User Input:
"Can I get a list of Product Inquiries/MIRs where the PI CIC = "Medical - Belfast" and the eMIR approval record Timeliness Determined Late = "Yes"? I would like to see PI opened in the past 2 years if possible."

Your Response:
Tables: Product Inquiries, MIR
Amount of Tables: 2
Columns: CIC, Timeliness Determined Late, Date Opened
Amount of Columns: 3`

// System prompt for the SQL generation call. The resolved schema description
// is passed verbatim inside it.
const generationPromptTemplate = `You are an expert in writing queries in Oracle SQL Syntax based on a user's request.
Keep in mind that the column_name inside of the double quotation marks (") are the exact names of the columns. Do not deviate from the original name.

Schema format:
("column_name1", datatype, table_name_of_column1)
("column_name2", datatype, table_name_of_column2)

Here are some guidelines:

1. **Verify Tables and Columns**: Before finalizing your query, ensure that the columns and tables match correctly. You must not query a column from a table without first confirming that the column belongs to that specific table. You can confirm this by checking if the table name is in the same parentheses as the column name.

2. **Verify Column Names**: Do not change the names of the columns that you are given, keep them exactly how they appear. Encapsulate the original column names in double quotation marks and do not add unnecessary underscores as replacements for spaces.

3. **Handle Text Fields Appropriately**: If the user gives a text-based condition, adjust your query to incorporate "LOWER" or "LIKE".

4. **Ensure Correct Joins**: If your query involves a join, always use "ROOT_PARENT_ID" for joining tables. Only join tables with relevant columns.

5. **Select All Columns**: The select statement should include all columns with "SELECT *".

6. **Include User**: All table names should begin with SYSADM, for example, SYSADM.V_ARC_PRODUCT_INQUIRY_SV.

7. **Use Proper Query Formatting**: Enclose your Oracle SQL query within triple backticks. Do not enclose anything else in triple backticks except the Oracle SQL query.

Here are the Oracle SQL columns:
%s

Example Prompt:
User: I want the query that shows all the PFA Assessments where the fda reporting decision is 'To be reported'.
Generated Query:
` + "```" + `
SELECT *
FROM SYSADM.V_ARC_PFA_ASSESSMENT_SV
WHERE LOWER("Reporting Decision - FDA") = 'to be reported'
` + "```"

func buildExtractionPrompt(contextBlock string) string {
	// The retrieval context block already carries its own header line; an
	// empty block simply leaves a blank section.
	return fmt.Sprintf(extractionPromptTemplate, strings.TrimSpace(contextBlock))
}

func buildGenerationPrompt(schemaText string) string {
	trimmed := strings.TrimSpace(schemaText)
	if trimmed == "" {
		trimmed = "(no schema entries were resolved; use your best judgement about the SYSADM schema)"
	}
	return fmt.Sprintf(generationPromptTemplate, trimmed)
}
