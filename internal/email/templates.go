package email

import (
	"fmt"
	"html"

	"closetry/internal/models"
)

func welcomeSubject(user *models.User) string {
	return fmt.Sprintf("Welcome to Closetry, %s!", user.Username)
}

func welcomeHTML(user *models.User) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Welcome to Closetry</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f8f9fa; }
        .container { background-color: white; padding: 40px; border-radius: 12px; }
        .logo { font-size: 28px; font-weight: bold; color: #4f46e5; }
        .footer { margin-top: 40px; font-size: 14px; color: #6c757d; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">Closetry</div>
        <h2>Welcome %s!</h2>
        <p>Your wardrobe is ready. With Closetry you can:</p>
        <ul>
            <li>Catalog your tops, bottoms and shoes</li>
            <li>Park items in the laundry while they are out of rotation</li>
            <li>Get a random outfit for the season and style you pick</li>
        </ul>
        <div class="footer">
            <p>This email was sent to %s.</p>
        </div>
    </div>
</body>
</html>`, html.EscapeString(user.Username), html.EscapeString(user.Email))
}

func welcomeText(user *models.User) string {
	return fmt.Sprintf(`Welcome %s!

Your wardrobe is ready. With Closetry you can:
- Catalog your tops, bottoms and shoes
- Park items in the laundry while they are out of rotation
- Get a random outfit for the season and style you pick

---
This email was sent to %s.`, user.Username, user.Email)
}
