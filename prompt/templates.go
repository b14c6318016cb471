package prompt

const clarifyTemplate = `You are a research assistant helping to clarify research requests.
Given the conversation history, determine if you need more information.

Conversation History:
{messages}

Today's date: {date}

If the request is clear enough to begin research, respond with:
- need_clarification: false
- verification: A brief confirmation of what you'll research
- question: "N/A"

If you need more information, respond with:
- need_clarification: true
- verification: "N/A"
- question: A specific question to clarify the research needs

Ask at most one question. Do not ask again for information the user already gave.

Respond only with a JSON object of the form:
{"need_clarification": <true|false>, "question": "<string>", "verification": "<string>"}`

const forceVerificationTemplate = `You are a research assistant. The user has answered enough clarifying questions.
Based on the conversation history, write ONE sentence confirming what you will research.
Start the sentence with "I will research".

Conversation History:
{messages}

Today's date: {date}

Respond with the sentence only, no JSON and no extra text.`

const briefTemplate = `Based on the conversation history, create a comprehensive research brief.
The brief should include:
- Clear research objectives
- Key questions to answer
- Scope and limitations
- Any specific requirements mentioned

Conversation History:
{messages}

Confirmed research topic: {verification}

Today's date: {date}

Respond only with a JSON object of the form:
{
  "research_brief": {
    "title": "<short title>",
    "date": "{date}",
    "main_question": "<the central research question>",
    "objectives": ["<objective>", "..."],
    "key_questions": ["<question>", "..."],
    "scope": {
      "in_scope": ["<item>", "..."],
      "out_of_scope": ["<item>", "..."]
    },
    "constraints": ["<requirement or limitation>", "..."]
  }
}`

const summarizeTemplate = `Based on the following search results, generate a comprehensive research report on the query: {query}

Search Results:
{search_results}

Today's date: {date}

Provide a detailed summary, key findings, and insights. Structure the report clearly with sections if appropriate.`
