package email

// Email templates using HTML

const securityAlertTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background: #dc2626;
            color: white;
            padding: 20px 30px;
            border-radius: 10px 10px 0 0;
        }
        .header h1 {
            margin: 0;
            font-size: 20px;
        }
        .content {
            background: #ffffff;
            padding: 30px;
            border: 1px solid #e5e7eb;
            border-top: none;
            border-radius: 0 0 10px 10px;
        }
        .info-box {
            background: #fef2f2;
            border-left: 4px solid #dc2626;
            padding: 15px;
            margin: 15px 0;
        }
        .label {
            font-weight: 600;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Security Alert</h1>
    </div>
    <div class="content">
        <p>The voice assistant flagged a banking request as suspicious. The
        request was NOT executed.</p>
        <div class="info-box">
            <p><span class="label">User:</span> {{.UserID}}</p>
            <p><span class="label">Intent:</span> {{.Intent}}</p>
            <p><span class="label">Time:</span> {{.When}}</p>
        </div>
        <p><span class="label">Details:</span></p>
        <p>{{.Details}}</p>
        <p>Review the user's recent turn history before lifting the flag.</p>
    </div>
</body>
</html>
`
