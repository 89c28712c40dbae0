package testutil

// Canonical module manifests for test fixtures. They mirror the manifests
// shipped under modules/ so integration tests can compose a modules directory
// without reaching outside their temp dir.

// TextstatsManifest declares the word_count and char_count processors.
const TextstatsManifest = `
processor "word_count" {
  arity = 1
  lifecycle {
    on_process = "OnProcessWordCount"
  }
  param "separator" {
    type = string
  }
}

processor "char_count" {
  arity = 1
  lifecycle {
    on_process = "OnProcessCharCount"
  }
}
`

// TransformManifest declares the lowercase and scale processors.
const TransformManifest = `
processor "lowercase" {
  arity = 1
  lifecycle {
    on_process = "OnProcessLowercase"
  }
}

processor "scale" {
  arity = 1
  lifecycle {
    on_process = "OnProcessScale"
  }
  param "factor" {
    type = number
  }
}
`

// AggregateManifest declares the mean_shift batch processor.
const AggregateManifest = `
processor "mean_shift" {
  arity = 1
  lifecycle {
    on_process_batch = "OnProcessBatchMeanShift"
  }
}
`

// MemoryManifest declares the in-memory sink.
const MemoryManifest = `
sink "memory" {
  lifecycle {
    open = "OpenMemory"
  }
}
`

// CSVManifest declares the csv file sink.
const CSVManifest = `
sink "csv" {
  lifecycle {
    open = "OpenCSV"
  }
  param "path" {
    type = string
  }
}
`

// JSONManifest declares the json file sink.
const JSONManifest = `
sink "json" {
  lifecycle {
    open = "OpenJSON"
  }
  param "path" {
    type = string
  }
}
`
