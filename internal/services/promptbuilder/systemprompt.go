package promptbuilder

// AnalysisSystemPrompt is the system instruction for market analysis requests.
const AnalysisSystemPrompt = `You are a cryptocurrency market analysis assistant providing precise, concise JSON responses for an automated agent. Respond with a single valid JSON object and nothing else.`

// TransactionSystemPrompt is the system instruction for transaction
// optimization requests.
const TransactionSystemPrompt = `You are a blockchain transaction optimization assistant providing precise, concise JSON responses for an automated agent. Respond with a single valid JSON object and nothing else.`
