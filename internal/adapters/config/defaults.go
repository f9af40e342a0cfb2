package config

// defaultConfigSource is the built-in @strata/config-default.
const defaultConfigSource = `{
  // Resolution of relative, absolute and bare specifiers.
  "resolvers": ["strata-resolver-default"],
  "transformers": {
    "*.{js,mjs,cjs,jsx,ts,tsx}": ["strata-transformer-js"],
    "*.json": ["strata-transformer-json"],
    "*.css": ["strata-transformer-css"],
    "*": ["strata-transformer-raw"]
  },
  "bundler": "strata-bundler-default",
  "namers": ["strata-namer-default"],
  "runtimes": [],
  "packagers": {
    "*.{js,mjs,cjs}": "strata-packager-js",
    "*.css": "strata-packager-css",
    "*": "strata-packager-raw"
  },
  "optimizers": {},
  "compressors": {
    "*": ["strata-compressor-raw"]
  },
  "reporters": ["strata-reporter-cli"],
  "validators": {}
}
`
