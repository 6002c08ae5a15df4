package prompts

const classifyInstructions = `You are an expert in S1000D documentation standards. Analyze this COMPLETE technical document carefully and select the MOST APPROPRIATE data module codes.`

const selectionRules = `INSTRUCTIONS:
1. Read the ENTIRE document title and content carefully
2. Identify the main system/component being discussed throughout the document
3. Determine the document type (procedure, description, fault isolation, etc.)
4. Match to the MOST SPECIFIC system and subsystem from the valid codes above
5. Select the info code that best matches the document type and purpose
6. Consider the WHOLE document, not just the beginning

CODE SELECTION RULES:
- system: 2-digit code for the main system (e.g., 20=Air Conditioning, 24=Electrical Power, 34=Navigation)
- subsystem: 2-digit code; if you find a match like "24-10", use "10" as subsystem
- infoCode: 3-character code matching document type (e.g., 000=General, 040=Description, 520=Procedure, 720=Fault Isolation)
- confidence: your confidence level (0-100) in this selection based on the entire document
- reasoning: brief explanation of why you chose these codes`

const outputContract = `Return ONLY this JSON (no other text):
{"system": "XX", "subsystem": "XX", "infoCode": "XXX", "disassembly": "00", "disassemblyVariant": "A", "infoVariant": "A", "confidence": 85, "reasoning": "Brief explanation"}`
