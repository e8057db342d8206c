package extract

// SegmentPrompt asks the model to split a chunk into one string per listing.
const SegmentPrompt = "You are splitting a text file into blocks that each describe exactly one car listing. The file content is:\n" +
	"```\n{{.content}}\n```\n\n" +
	`### Tasks:

1. Do not omit anything. Keep all text exactly as it appears in the file.
2. Reply with valid JSON only: an array of strings, one string per listing description.

### Sample Output:
[
    "Description text for the first listing",
    "Description text for the second listing"
]`

// StructurePrompt asks the model to turn one description into a Listing object.
const StructurePrompt = "You are converting one car listing into the JSON object below. The listing text is:\n" +
	"```\n{{.content}}\n```\n\n" +
	`### Tasks:

1. Do not omit anything. Keep all text exactly as it appears in the listing.
2. Reply with one valid JSON object only, with exactly these keys and string values.

### Sample Output:
{
    "Make":"Toyota",
    "Model":"highlux",
    "Odometer":"100000",
    "ManufacturerDate":"2000-05-29",
    "Price":"16900",
    "Contact":"contact@example.com"
}`

// ChatStructureSystem is the system instruction of the function-calling
// structurer. The listing itself is sent as the user message.
const ChatStructureSystem = `You convert a single car listing into one structured JSON object.

### Tasks:

1. Do not omit anything. Keep all text exactly as it appears in the listing.
2. Reply with a single valid JSON object and nothing else.
3. Price is a decimal number in US dollars. When the listing is priced in another currency, call ConvertToDollar.

### Sample Response:
{
    "Make":"Toyota",
    "Model":"highlux",
    "Odometer":"100000",
    "ManufacturerDate":"2000-05-29",
    "Price": 16900.00,
    "Contact":"contact@example.com"
}`

const chatUserTemplate = "{{.content}}"
