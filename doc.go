// Copyright 2026 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package gsheets provides convenient access to Google Sheets spreadsheets: a spreadsheet is opened by
ID, its worksheets are looked up by title (or sheet ID) and the values in A1-notation ranges and cells
are read and written through the Google Sheets API.

The library packages are:

  - a1, for A1 range notation (validation, column letters, grid ranges)
  - auth, for OAuth2 client credentials, stored tokens and the installed application authorisation flow
  - spreadsheet, for the Spreadsheet and Sheet operations (get, set, update, append, clear and batches)
  - table, for converting worksheet values to and from TSV, CSV and XLSX tables
  - config, for the configuration file, .env file and GSHEETS_ environment variables

The gsheets command line application supports the following commands:

  - authorise, to authorise access to Google Sheets and store the OAuth2 tokens
  - info, to display the spreadsheet metadata and worksheets
  - get, to download a worksheet range as a TSV, CSV or XLSX file (optionally on a cron schedule)
  - put, to upload a TSV, CSV or XLSX file to a worksheet range
  - append, to append the records in a TSV, CSV or XLSX file to a worksheet table
  - clear, to clear a worksheet range
*/
package gsheets
