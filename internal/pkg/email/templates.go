package email

// Template names
const (
	TemplateSignupConfirmation = "signup_confirmation"
	TemplatePasswordReset      = "password_reset"
	TemplateMagicLink          = "magic_link"
	TemplateNotification       = "notification"
	TemplateCreditReceipt      = "credit_receipt"
)

// BaseTemplate is the base layout for all emails
const BaseTemplate = `
<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body {
            margin: 0;
            padding: 0;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: #f6f9fc;
            color: #1f2937;
        }
        .container {
            max-width: 600px;
            margin: 0 auto;
            padding: 40px 20px;
        }
        .card {
            background: #ffffff;
            border-radius: 12px;
            padding: 32px;
            border: 1px solid #e5e7eb;
        }
        .logo {
            text-align: center;
            margin-bottom: 24px;
        }
        .logo h1 {
            font-size: 28px;
            color: #16a34a;
            margin: 0;
        }
        h2 {
            font-size: 22px;
            margin: 0 0 16px;
        }
        p {
            color: #4b5563;
            font-size: 16px;
            line-height: 1.6;
            margin: 0 0 16px;
        }
        .btn {
            display: inline-block;
            background: #16a34a;
            color: #ffffff !important;
            text-decoration: none;
            padding: 14px 28px;
            border-radius: 8px;
            font-weight: 600;
            margin: 16px 0;
        }
        .info-box {
            background: #f0fdf4;
            border-radius: 8px;
            padding: 16px;
            margin: 16px 0;
        }
        .footer {
            text-align: center;
            margin-top: 32px;
            color: #9ca3af;
            font-size: 12px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            <div class="logo">
                <h1>🌾 AgroCi</h1>
            </div>
            {{.Content}}
        </div>
        <div class="footer">
            <p>© {{.Year}} AgroCi. Tous droits réservés.</p>
        </div>
    </div>
</body>
</html>
`

// SignupConfirmationTemplate - sent by the auth hook on signup
const SignupConfirmationTemplate = `
<h2>Bienvenue sur AgroCi{{if .UserName}}, {{.UserName}}{{end}} !</h2>
<p>Confirmez votre adresse email pour activer votre compte.</p>
<a href="{{.ActionURL}}" class="btn">Confirmer mon inscription</a>
<div class="info-box">
    <p><strong>Ce que vous pouvez faire sur AgroCi :</strong></p>
    <p>🌱 Découvrir des produits agricoles locaux</p>
    <p>🤝 Contacter directement les producteurs</p>
    <p>📍 Trouver des produits près de chez vous</p>
    <p>💬 Négocier via WhatsApp</p>
</div>
<p>Si vous n'avez pas créé de compte, ignorez cet email.</p>
`

// PasswordResetTemplate - recovery link
const PasswordResetTemplate = `
<h2>Réinitialisez votre mot de passe AgroCi</h2>
<p>Vous avez demandé la réinitialisation de votre mot de passe.</p>
<a href="{{.ActionURL}}" class="btn">Réinitialiser votre mot de passe</a>
<p>Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>
`

// MagicLinkTemplate - passwordless login
const MagicLinkTemplate = `
<h2>Votre lien de connexion</h2>
<p>Cliquez sur le bouton ci-dessous pour vous connecter à AgroCi.</p>
<a href="{{.ActionURL}}" class="btn">Se connecter</a>
<p>Ce lien expire rapidement et ne peut être utilisé qu'une fois.</p>
`

// NotificationTemplate - any other auth action
const NotificationTemplate = `
<h2>Action requise sur votre compte</h2>
<p>Veuillez confirmer l'action demandée sur votre compte AgroCi.</p>
<a href="{{.ActionURL}}" class="btn">Continuer</a>
`

// CreditReceiptTemplate - sent after a credit purchase is reconciled
const CreditReceiptTemplate = `
<h2>Vos crédits ont été ajoutés</h2>
<p>Merci pour votre achat ! Votre paiement a bien été reçu.</p>
<div class="info-box">
    <p><strong>Pack :</strong> {{.PlanName}}</p>
    <p><strong>Crédits ajoutés :</strong> {{.Credits}}</p>
    <p><strong>Montant :</strong> {{.Amount}}</p>
    <p><strong>Nouveau solde :</strong> {{.Balance}} crédits</p>
    <p><strong>Référence :</strong> {{.Reference}}</p>
</div>
<p>Utilisez vos crédits pour débloquer les contacts des producteurs.</p>
`
