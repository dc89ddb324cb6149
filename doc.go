// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package uhppoted-app-drive serves the rows of a spreadsheet stored in a Google Drive folder as JSON.

uhppoted-app-drive authenticates with a Google service account, downloads the most recently modified
spreadsheet with a matching name from a Google Drive folder and serves the rows of the local copy on
GET /data. The local copy is only ever replaced by a complete download, so the endpoint keeps serving
the previous copy if Google Drive is unavailable.

uhppoted-app-drive supports the following commands:

  - get, to download the spreadsheet from a Google Drive folder to a local file
  - serve, to download the spreadsheet and serve the rows over HTTP
  - rows, to print the rows of the local copy as TSV or JSON
*/
package drive
