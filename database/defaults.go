package database

// Fallback payloads returned when a user has no stored preferences or view
// state row, and seeded for new accounts.

const defaultPreferences = `{
  "theme": "light",
  "language": "de",
  "accentColor": "#f97316",
  "backgroundImage": "/backgrounds/bg12.webp",
  "backgroundType": "image"
}`

const defaultViewState = `{
  "currentMode": "columns",
  "kanbanGrouping": "status",
  "taskView": "board",
  "projectKanban": {
    "selectedProjectId": null,
    "columns": [],
    "searchQuery": "",
    "priorityFilters": [],
    "tagFilters": [],
    "showCompleted": false,
    "viewType": "board"
  }
}`
